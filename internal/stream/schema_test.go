package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"kernel dispatch", Event{Category: "KERNEL_DISPATCH", Name: "kernel_dispatch_start"}, KernelDispatchSchema},
		{"kernel dispatch lowercase", Event{Category: "kernel_dispatch"}, KernelDispatchSchema},
		{"memory copy", Event{Category: "MEMORY_COPY"}, MemoryCopySchema},
		{"memory allocation", Event{Category: "MEMORY_ALLOCATION"}, MemoryAllocationSchema},
		{"hip runtime region", Event{Category: "HIP_RUNTIME_API_EXT", Name: "hipMalloc_start"}, RegionSchema},
		{"hip compiler region", Event{Category: "HIP_COMPILER_API_EXT"}, RegionSchema},
		{"marker region", Event{Category: "MARKER_CORE_API"}, RegionSchema},
		{"region by name", Event{Category: "SOMETHING_ELSE", Name: "main_region_start"}, RegionSchema},
		{"unknown category", Event{Category: "SCRATCH_MEMORY", Name: "scratch_start"}, GenericSchema},
		{"empty category", Event{Name: "mystery"}, GenericSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SchemaFor(tt.event); got != tt.want {
				t.Errorf("SchemaFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShape_CopiesOnlyDeclaredFields(t *testing.T) {
	ev := Event{
		Name:     "kernel_dispatch_start",
		Category: "KERNEL_DISPATCH",
		Payload: map[string]any{
			"kernel_name":    "vector_add",
			"dispatch_id":    int64(12),
			"queue_id":       int64(1),
			"workgroup_size": "256x1x1",
			"event_type":     "kernel_dispatch_start",
			"duration":       int64(0),
			"secret_field":   "must not survive",
		},
	}

	schema, fields := Shape(ev)
	require.Equal(t, KernelDispatchSchema, schema)

	assert.Equal(t, "vector_add", fields["kernel_name"])
	assert.Equal(t, int64(12), fields["dispatch_id"])
	assert.Equal(t, "256x1x1", fields["workgroup_size"])
	assert.NotContains(t, fields, "secret_field")

	// Declared but unpopulated fields keep their type defaults.
	assert.Equal(t, "", fields["grid_size"])
	assert.Equal(t, int64(0), fields["stream_id"])
}

func TestShape_SkipsNilValues(t *testing.T) {
	ev := Event{
		Category: "MEMORY_COPY",
		Payload: map[string]any{
			"copy_name": nil,
			"size":      int64(4096),
		},
	}

	schema, fields := Shape(ev)
	require.Equal(t, MemoryCopySchema, schema)
	assert.Equal(t, "", fields["copy_name"], "nil value keeps the type default")
	assert.Equal(t, int64(4096), fields["size"])
}

func TestShape_DropsWrongTypes(t *testing.T) {
	ev := Event{
		Category: "MEMORY_ALLOCATION",
		Payload: map[string]any{
			"allocation_name": int64(99), // int into a string field
			"size":            "not-int", // string into an int field
			"agent_id":        int64(2),
		},
	}

	_, fields := Shape(ev)
	assert.Equal(t, "", fields["allocation_name"])
	assert.Equal(t, int64(0), fields["size"])
	assert.Equal(t, int64(2), fields["agent_id"])
}

func TestShape_FieldsAreSchemaSubset(t *testing.T) {
	events := []Event{
		{Category: "KERNEL_DISPATCH", Payload: map[string]any{"kernel_name": "k", "junk": 1}},
		{Category: "HIP_RUNTIME_API_EXT", Payload: map[string]any{"region_name": "r"}},
		{Category: "UNMAPPED", Name: "weird", Payload: map[string]any{"event_type": "weird_start", "extra": "x"}},
	}

	for _, ev := range events {
		name, fields := Shape(ev)
		schema, ok := LookupSchema(name)
		require.True(t, ok)

		declared := make(map[string]bool, len(schema.Fields))
		for _, f := range schema.Fields {
			declared[f.Name] = true
		}
		for key := range fields {
			assert.True(t, declared[key], "field %q not declared by schema %q", key, name)
		}
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Kernel Dispatch", DisplayName("KERNEL_DISPATCH"))
	assert.Equal(t, "HIP Runtime API Extended", DisplayName("HIP_RUNTIME_API_EXT"))
	assert.Equal(t, "SOME_FUTURE_CATEGORY", DisplayName("SOME_FUTURE_CATEGORY"))
}
