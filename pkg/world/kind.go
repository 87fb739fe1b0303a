package world

// ContentKind is the closed set of content types the engine generates or
// tracks. Policy decisions (spacing rules, generator dispatch) switch
// exhaustively over this enum so a new kind is a compile-time exercise.
type ContentKind uint8

const (
	KindRoad ContentKind = iota
	KindBuilding
	KindVehicle
	KindVegetation
	KindNPC
	KindPlayer
	KindAircraft
)

// Kinds lists every content kind.
var Kinds = [...]ContentKind{
	KindRoad, KindBuilding, KindVehicle, KindVegetation,
	KindNPC, KindPlayer, KindAircraft,
}

func (k ContentKind) String() string {
	switch k {
	case KindRoad:
		return "road"
	case KindBuilding:
		return "building"
	case KindVehicle:
		return "vehicle"
	case KindVegetation:
		return "vegetation"
	case KindNPC:
		return "npc"
	case KindPlayer:
		return "player"
	case KindAircraft:
		return "aircraft"
	default:
		return "invalid"
	}
}
