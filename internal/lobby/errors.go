package lobby

// RoomFullError is returned when admission cannot find a free slot in a
// room the matchmaking step already deemed joinable. Per §4.3 this should
// not occur given the admission predicate; it exists as a defensive guard.
type RoomFullError struct{}

func (e *RoomFullError) Error() string { return "lobby: room has no free slot" }
