package scene

import "math"

// Entity identifies an object in a Scene. Entities own no data; they are
// keys into the scene's component stores.
type Entity uint32

// InvalidEntity is the reserved sentinel meaning "no entity".
const InvalidEntity Entity = math.MaxUint32

// Valid reports whether e is a usable id (not the sentinel).
func (e Entity) Valid() bool { return e != InvalidEntity }
