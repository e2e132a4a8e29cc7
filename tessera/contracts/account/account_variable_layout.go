package account

// Storage slots for smart account contract variables
const (
	// address public owner - slot 0
	ownerSlot int64 = 0x0
)
