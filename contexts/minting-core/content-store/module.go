package contentstore

import (
	"mintbox/contexts/minting-core/content-store/adapters/memory"
	"mintbox/contexts/minting-core/content-store/ports"
)

type Module struct {
	Store ports.ContentStore
}

func NewInMemoryModule() Module {
	return Module{Store: memory.NewStore()}
}
