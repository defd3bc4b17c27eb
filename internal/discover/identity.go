package discover

import "sync/atomic"

// Identity holds the nickname announced by the beacon. It may change at
// runtime, the next Hello carries the new value.
type Identity struct {
	nickname atomic.Pointer[string]
}

func NewIdentity(nickname string) *Identity {
	id := &Identity{}
	id.SetNickname(nickname)
	return id
}

func (i *Identity) Nickname() string {
	return *i.nickname.Load()
}

func (i *Identity) SetNickname(nickname string) {
	i.nickname.Store(&nickname)
}
