package depot

import (
	"errors"
	"fmt"
	"testing"
)

func TestCacheBasicOperations(t *testing.T) {
	const capacity = 10
	cache := FactoryNewCache[string](capacity)

	items := []string{"item1", "item2", "item3", "item4", "item5"}
	indices := make([]int, len(items))

	for i, item := range items {
		index, err := cache.Register(item, item)
		if err != nil {
			t.Errorf("Failed to register item %s: %v", item, err)
		}
		indices[i] = index

		if index != i {
			t.Errorf("Index for item %s is %d, expected %d", item, index, i)
		}
	}

	for i, item := range items {
		index, found := cache.GetIndex(item)
		if !found {
			t.Errorf("Item %s not found in cache", item)
		}
		if index != indices[i] {
			t.Errorf("Index for item %s is %d, expected %d", item, index, indices[i])
		}
		if got := *cache.GetItem(index); got != item {
			t.Errorf("Item at index %d is %s, expected %s", index, got, item)
		}
		if got := *cache.GetItem32(uint32(index)); got != item {
			t.Errorf("Item at index %d is %s, expected %s", index, got, item)
		}
	}

	if _, found := cache.GetIndex("nonexistent"); found {
		t.Errorf("Found non-existent item in cache")
	}
	if cache.Len() != len(items) {
		t.Errorf("Len() = %d, want %d", cache.Len(), len(items))
	}
}

func TestCacheReRegisterReplaces(t *testing.T) {
	cache := FactoryNewCache[int](2)

	first, _ := cache.Register("a", 1)
	again, err := cache.Register("a", 2)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if again != first {
		t.Errorf("re-register index = %d, want %d", again, first)
	}
	if got := *cache.GetItem(first); got != 2 {
		t.Errorf("item = %d, want 2", got)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCacheCapacity(t *testing.T) {
	const capacity = 5
	cache := FactoryNewCache[int](capacity)

	for i := 0; i < capacity; i++ {
		key := fmt.Sprintf("item%d", i)
		if _, err := cache.Register(key, i); err != nil {
			t.Errorf("Failed to register item %s: %v", key, err)
		}
	}

	_, err := cache.Register("overflow", 100)
	var capErr CacheCapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("Register() error = %v, want CacheCapacityError", err)
	}
	if capErr.Capacity != capacity {
		t.Errorf("Capacity = %d, want %d", capErr.Capacity, capacity)
	}
}

func TestCacheClear(t *testing.T) {
	cache := FactoryNewCache[string](3)

	items := []string{"item1", "item2", "item3"}
	for _, item := range items {
		if _, err := cache.Register(item, item); err != nil {
			t.Errorf("Failed to register item %s: %v", item, err)
		}
	}

	cache.Clear()

	for _, item := range items {
		if _, found := cache.GetIndex(item); found {
			t.Errorf("Item %s still found after cache clear", item)
		}
	}
	for _, item := range items {
		if _, err := cache.Register(item, item); err != nil {
			t.Errorf("Failed to register item %s after clear: %v", item, err)
		}
	}
}

func TestCacheWithComplexTypes(t *testing.T) {
	cache := FactoryNewCache[Position](10)

	positions := []Position{
		{X: 1.0, Y: 2.0},
		{X: 3.0, Y: 4.0},
		{X: 5.0, Y: 6.0},
	}
	keys := []string{"pos1", "pos2", "pos3"}

	for i, pos := range positions {
		if _, err := cache.Register(keys[i], pos); err != nil {
			t.Errorf("Failed to register position %v: %v", pos, err)
		}
	}

	for i, key := range keys {
		index, found := cache.GetIndex(key)
		if !found {
			t.Errorf("Position with key %s not found", key)
			continue
		}
		if pos := cache.GetItem(index); *pos != positions[i] {
			t.Errorf("Position at index %d is %v, expected %v", index, *pos, positions[i])
		}
	}
}
