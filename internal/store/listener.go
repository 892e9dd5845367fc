package store

import "github.com/hpungsan/rolodex/internal/contact"

// Listener is notified after the in-memory change and its persistence write
// have both completed. Calls happen outside the store lock, so a listener may
// call back into the store.
type Listener interface {
	OnLoad(records []contact.Record)
	OnSaved(rec contact.Record)
	OnDeleted(id string)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Load    func(records []contact.Record)
	Saved   func(rec contact.Record)
	Deleted func(id string)
}

// OnLoad implements Listener.
func (f ListenerFuncs) OnLoad(records []contact.Record) {
	if f.Load != nil {
		f.Load(records)
	}
}

// OnSaved implements Listener.
func (f ListenerFuncs) OnSaved(rec contact.Record) {
	if f.Saved != nil {
		f.Saved(rec)
	}
}

// OnDeleted implements Listener.
func (f ListenerFuncs) OnDeleted(id string) {
	if f.Deleted != nil {
		f.Deleted(id)
	}
}
