package internal

// Object is a single payload addressed by key in a Repository.
// Metadata keys are stored as user metadata by repositories that support it.
type Object struct {
	Key         string
	Body        []byte
	ContentType string
	ACL         string
	Metadata    map[string]string
}

func NewObject(key string, body []byte, contentType string) *Object {
	return &Object{
		Key:         key,
		Body:        body,
		ContentType: contentType,
		Metadata:    make(map[string]string),
	}
}

func (o *Object) Len() int64 {
	return int64(len(o.Body))
}
