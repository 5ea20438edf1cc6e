package portman

import (
	"context"
	"fmt"

	"github.com/danmuck/ringlink/internal/errkind"
)

// EndpointFinder looks up the endpoints registered for a service name.
type EndpointFinder interface {
	Endpoints(ctx context.Context, name string) ([]Endpoint, error)
}

// Resolve returns the first endpoint registered under name. No balancing or
// health checking is done; an empty listing means there is no registrar.
func Resolve(ctx context.Context, finder EndpointFinder, name string) (Endpoint, error) {
	endpoints, err := finder.Endpoints(ctx, name)
	if err != nil {
		return Endpoint{}, err
	}
	if len(endpoints) == 0 {
		return Endpoint{}, errkind.New(errkind.NoRegistrar, "portman.Resolve", fmt.Errorf("no service named %q", name))
	}
	return endpoints[0], nil
}
