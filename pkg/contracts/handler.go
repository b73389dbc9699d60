package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Compose mounts several handlers on one router, for services that expose
// more than one domain surface.
func Compose(handlers ...Handler) Handler {
	return composite(handlers)
}

type composite []Handler

func (c composite) RegisterRoutes(router *httprouter.Router) {
	for _, h := range c {
		h.RegisterRoutes(router)
	}
}
