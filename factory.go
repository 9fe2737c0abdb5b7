package depot

import "go.uber.org/zap"

type factory struct{}

var Factory factory

// NewWorld creates a world from the package defaults in Config.
func (f factory) NewWorld() *World {
	return newWorld(DefaultWorldConfig())
}

func (f factory) NewWorldWithConfig(cfg WorldConfig) *World {
	return newWorld(cfg)
}

func (f factory) NewSchedule(log *zap.Logger) *Schedule {
	return newSchedule(log)
}

func FactoryNewComponent[T any]() AccessibleComponent[T] {
	return AccessibleComponent[T]{componentKey: keyOf[T]()}
}

func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
