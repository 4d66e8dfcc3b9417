package execctx

import (
	"maps"
	"sync"
)

var (
	dataMu  sync.RWMutex
	dataMap = map[string]any{}
)

// SetDataMap replaces the process-wide context map with a copy of m.
func SetDataMap(m map[string]any) {
	cp := make(map[string]any, len(m))
	maps.Copy(cp, m)

	dataMu.Lock()
	dataMap = cp
	dataMu.Unlock()
}

// PutData stores a single value in the process-wide context map.
func PutData(key string, value any) {
	dataMu.Lock()
	dataMap[key] = value
	dataMu.Unlock()
}

// DeleteData removes key from the process-wide context map.
func DeleteData(key string) {
	dataMu.Lock()
	delete(dataMap, key)
	dataMu.Unlock()
}

// DataMap returns a copy of the process-wide context map.
func DataMap() map[string]any {
	dataMu.RLock()
	defer dataMu.RUnlock()

	return maps.Clone(dataMap)
}

// ClearDataMap empties the process-wide context map.
func ClearDataMap() {
	dataMu.Lock()
	dataMap = map[string]any{}
	dataMu.Unlock()
}
