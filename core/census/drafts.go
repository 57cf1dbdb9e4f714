package census

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Drafts holds in-progress forms. Every access extends a draft's lifetime by ttl.
type Drafts struct {
	registry SchoolFinder
	cache    *cache.Cache
}

func NewDrafts(registry SchoolFinder, ttl time.Duration) *Drafts {
	return &Drafts{
		registry: registry,
		cache:    cache.New(ttl, ttl/2+time.Second),
	}
}

func (ds *Drafts) New() *Draft {
	d := NewDraft(uuid.NewString(), ds.registry)
	ds.cache.SetDefault(d.ID(), d)
	return d
}

func (ds *Drafts) Get(id string) (*Draft, error) {
	v, ok := ds.cache.Get(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	d := v.(*Draft)
	ds.cache.SetDefault(id, d) // slide
	return d, nil
}

func (ds *Drafts) Delete(id string) {
	ds.cache.Delete(id)
}

func (ds *Drafts) Count() int {
	return ds.cache.ItemCount()
}
