package cards

import (
	"github.com/futballcards/futballcards-go/types"
)

/*
ResolveURI returns the display URI of an active token: the content base
followed by the static reference when one is set, the dynamic base followed
by the token ID otherwise. The result depends only on the current record
state, nothing is cached.
*/
func (r *Registry) ResolveURI(id types.TokenID) (string, error) {
	c, err := r.active(id)
	if err != nil {
		return "", err
	}
	return resolveURI(c, r.baseURI, r.contentBaseURI), nil
}

func resolveURI(c *Card, baseURI, contentBaseURI string) string {
	if c.HasStaticImage() {
		return contentBaseURI + c.StaticImage
	}
	return baseURI + c.ID.String()
}
