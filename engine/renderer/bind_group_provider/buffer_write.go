package bind_group_provider

import "github.com/Carmen-Shannon/oxy-graph/engine/renderer/gpu"

// BufferWrite describes one uniform upload: the encoded block Data written at Offset into
// Buffer. The executor collects the writes of a frame and the backend applies them before
// any pass of that frame runs.
type BufferWrite struct {
	Buffer gpu.Buffer
	Offset uint64
	Data   []byte
}
