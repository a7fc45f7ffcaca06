package graph

// Universe holds the adjacency list of solar systems connected by stargates,
// plus each system's name and security.
type Universe struct {
	// Adj maps systemID -> list of neighboring systemIDs
	Adj map[int32][]int32
	// SystemName maps systemID -> name
	SystemName map[int32]string
	// SystemSecurity maps systemID -> security (-1.0 to 1.0); highsec >= 0.45
	SystemSecurity map[int32]float64
}

// NewUniverse creates an empty Universe with initialized maps.
func NewUniverse() *Universe {
	return &Universe{
		Adj:            make(map[int32][]int32),
		SystemName:     make(map[int32]string),
		SystemSecurity: make(map[int32]float64),
	}
}

// AddGate adds a one-way stargate connection. Gates come in pairs in the
// data, one row per direction.
func (u *Universe) AddGate(fromSystem, toSystem int32) {
	u.Adj[fromSystem] = append(u.Adj[fromSystem], toSystem)
}

// SetName records a system's name.
func (u *Universe) SetName(systemID int32, name string) {
	u.SystemName[systemID] = name
}

// SetSecurity sets the security level for a system.
func (u *Universe) SetSecurity(systemID int32, security float64) {
	u.SystemSecurity[systemID] = security
}

// Len returns the number of named systems.
func (u *Universe) Len() int {
	return len(u.SystemName)
}
