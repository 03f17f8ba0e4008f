package kvstore

import "github.com/alphadose/haxmap"

// Memory keeps values in a concurrent map. The zero value is not usable; call NewMemory.
type Memory struct {
	values *haxmap.Map[string, string]
}

func NewMemory() *Memory {
	return &Memory{values: haxmap.New[string, string]()}
}

func (m *Memory) Get(key string) (string, bool, error) {
	v, ok := m.values.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.values.Set(key, value)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.values.Del(key)
	return nil
}
