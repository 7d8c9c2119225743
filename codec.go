package fastpack

// ContentType is the MIME type of fastpack-encoded data.
const ContentType = "application/x-fastpack"

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

var _ Codec = (*Processor)(nil)
