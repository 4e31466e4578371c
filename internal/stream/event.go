package stream

// Event is a single point-event extracted from the trace database.
// Every source row yields two of these: a start event with Duration 0 and
// an end event carrying the row's full duration. Context fields are
// pointers because their presence, not just their value, decides which
// channel the event belongs to.
type Event struct {
	// Name is the operation label, e.g. "kernel_dispatch_start".
	Name string
	// Timestamp is a nanosecond-resolution monotonic clock value.
	Timestamp int64
	// Duration is 0 on start events and end-start on end events.
	Duration int64
	// Category is one of the rocprofiler-sdk categories, or an opaque
	// string for values this version does not know about.
	Category string

	PID      *int64
	TID      *int64
	AgentID  *int64
	QueueID  *int64
	StreamID *int64

	// Payload holds the raw per-category fields. The payload mapper
	// copies only the keys its schema declares; everything else is
	// dropped at emission time.
	Payload map[string]any
}

// Category names reported by rocprofiler-sdk.
const (
	CategoryKernelDispatch   = "KERNEL_DISPATCH"
	CategoryMemoryCopy       = "MEMORY_COPY"
	CategoryMemoryAllocation = "MEMORY_ALLOCATION"
)

// CategoryNames maps rocprofiler-sdk category identifiers to their
// human-readable display names.
var CategoryNames = map[string]string{
	"HSA_CORE_API":              "HSA Core API",
	"HSA_AMD_EXT_API":           "HSA AMD Extension API",
	"HSA_IMAGE_EXT_API":         "HSA Image Extension API",
	"HSA_FINALIZE_EXT_API":      "HSA Finalize Extension API",
	"HIP_RUNTIME_API":           "HIP Runtime API",
	"HIP_RUNTIME_API_EXT":       "HIP Runtime API Extended",
	"HIP_COMPILER_API":          "HIP Compiler API",
	"HIP_COMPILER_API_EXT":      "HIP Compiler API Extended",
	"MARKER_CORE_API":           "Marker Core API",
	"MARKER_CONTROL_API":        "Marker Control API",
	"MARKER_NAME_API":           "Marker Name API",
	"MEMORY_COPY":               "Memory Copy",
	"MEMORY_ALLOCATION":         "Memory Allocation",
	"KERNEL_DISPATCH":           "Kernel Dispatch",
	"SCRATCH_MEMORY":            "Scratch Memory",
	"CORRELATION_ID_RETIREMENT": "Correlation ID Retirement",
	"RCCL_API":                  "RCCL API",
	"OMPT":                      "OpenMP Tools",
	"RUNTIME_INITIALIZATION":    "Runtime Initialization",
	"ROCDECODE_API":             "ROCDecode API",
	"ROCDECODE_API_EXT":         "ROCDecode API Extended",
	"ROCJPEG_API":               "ROCJPEG API",
	"HIP_STREAM":                "HIP Stream",
	"KFD_EVENT_PAGE_MIGRATE":    "KFD Event Page Migrate",
	"KFD_EVENT_PAGE_FAULT":      "KFD Event Page Fault",
	"KFD_EVENT_QUEUE":           "KFD Event Queue",
	"KFD_EVENT_UNMAP_FROM_GPU":  "KFD Event Unmap From GPU",
	"KFD_EVENT_DROPPED_EVENTS":  "KFD Event Dropped Events",
	"KFD_PAGE_MIGRATE":          "KFD Page Migrate",
	"KFD_PAGE_FAULT":            "KFD Page Fault",
	"KFD_QUEUE":                 "KFD Queue",
}

// DisplayName returns the human-readable name for a category, or the
// category itself when it is not a known rocprofiler-sdk category.
func DisplayName(category string) string {
	if name, ok := CategoryNames[category]; ok {
		return name
	}
	return category
}
