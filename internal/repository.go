package internal

import (
	"context"
)

// ACLPublicRead makes a published object readable by anonymous clients.
const ACLPublicRead = "public-read"

// Repository is a destination for published objects. Writing to an
// existing key overwrites it, which makes re-publishing idempotent.
type Repository interface {
	Put(ctx context.Context, obj *Object) error
}
