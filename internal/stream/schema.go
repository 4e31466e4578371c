package stream

import "strings"

// FieldKind is the wire type of a schema field.
type FieldKind int

const (
	// FieldString is a UTF-8 string field.
	FieldString FieldKind = iota
	// FieldInt64 is a signed 64-bit integer field.
	FieldInt64
)

// Field is one named, typed member of a payload schema.
type Field struct {
	Name string
	Kind FieldKind
}

// Schema is the fixed field set an event category is permitted to
// populate. Raw payload keys outside the schema are dropped at shaping
// time.
type Schema struct {
	Name   string
	Fields []Field
}

// Schema names. The set is closed; GenericSchema is the fallback for
// anything the category mapping does not recognize.
const (
	RegionSchema           = "region_event"
	KernelDispatchSchema   = "kernel_dispatch_event"
	MemoryCopySchema       = "memory_copy_event"
	MemoryAllocationSchema = "memory_allocation_event"
	GenericSchema          = "generic_event"
)

var schemas = map[string]Schema{
	RegionSchema: {
		Name: RegionSchema,
		Fields: []Field{
			{"region_name", FieldString},
			{"event_type", FieldString},
			{"category", FieldString},
			{"process_name", FieldString},
			{"thread_name", FieldString},
			{"pid", FieldInt64},
			{"tid", FieldInt64},
			{"nid", FieldInt64},
			{"correlation_id", FieldInt64},
			{"duration", FieldInt64},
			{"extdata", FieldString},
			{"call_stack", FieldString},
			{"line_info", FieldString},
		},
	},
	KernelDispatchSchema: {
		Name: KernelDispatchSchema,
		Fields: []Field{
			{"kernel_name", FieldString},
			{"event_type", FieldString},
			{"dispatch_id", FieldInt64},
			{"queue_id", FieldInt64},
			{"stream_id", FieldInt64},
			{"workgroup_size", FieldString},
			{"grid_size", FieldString},
			{"duration", FieldInt64},
		},
	},
	MemoryCopySchema: {
		Name: MemoryCopySchema,
		Fields: []Field{
			{"copy_name", FieldString},
			{"event_type", FieldString},
			{"size", FieldInt64},
			{"dst_agent_id", FieldInt64},
			{"src_agent_id", FieldInt64},
			{"queue_id", FieldInt64},
			{"stream_id", FieldInt64},
			{"duration", FieldInt64},
		},
	},
	MemoryAllocationSchema: {
		Name: MemoryAllocationSchema,
		Fields: []Field{
			{"allocation_name", FieldString},
			{"event_type", FieldString},
			{"size", FieldInt64},
			{"agent_id", FieldInt64},
			{"duration", FieldInt64},
		},
	},
	GenericSchema: {
		Name:   GenericSchema,
		Fields: []Field{{"event_type", FieldString}},
	},
}

// regionCategories are the API and marker categories whose events share
// the region schema.
var regionCategories = map[string]bool{
	"hip_runtime_api_ext":  true,
	"hip_compiler_api_ext": true,
	"hsa_core_api":         true,
	"hsa_amd_ext_api":      true,
	"marker_core_api":      true,
}

// SchemaFor selects the payload schema for an event. The mapping is
// case-insensitive on category and total: anything unrecognized falls
// back to the generic schema.
func SchemaFor(ev Event) string {
	category := strings.ToLower(ev.Category)

	switch {
	case regionCategories[category]:
		return RegionSchema
	case category == "kernel_dispatch":
		return KernelDispatchSchema
	case category == "memory_copy":
		return MemoryCopySchema
	case category == "memory_allocation":
		return MemoryAllocationSchema
	case strings.Contains(ev.Name, "region"):
		return RegionSchema
	default:
		return GenericSchema
	}
}

// LookupSchema returns the schema definition for a schema name.
func LookupSchema(name string) (Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}

// Shape maps an event's raw payload onto its schema. Only keys declared
// by the schema are copied; nil values are skipped so the field keeps its
// type default, and values of the wrong type are dropped rather than
// coerced into a wrong field. Shaping is lossy by contract and never
// fails.
func Shape(ev Event) (string, map[string]any) {
	name := SchemaFor(ev)
	schema, ok := schemas[name]
	if !ok {
		schema = schemas[GenericSchema]
		name = GenericSchema
	}

	fields := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		switch f.Kind {
		case FieldString:
			fields[f.Name] = ""
		case FieldInt64:
			fields[f.Name] = int64(0)
		}
	}

	for _, f := range schema.Fields {
		raw, present := ev.Payload[f.Name]
		if !present || raw == nil {
			continue
		}
		switch f.Kind {
		case FieldString:
			if s, ok := raw.(string); ok {
				fields[f.Name] = s
			}
		case FieldInt64:
			if n, ok := toInt64(raw); ok {
				fields[f.Name] = n
			}
		}
	}

	return name, fields
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}
