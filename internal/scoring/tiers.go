package scoring

// Tier is an access bucket derived from a trust score. It is never stored.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
	Tier5
)

// DataAccess is the portal data scope a tier may read.
type DataAccess string

const (
	DataAccessNone     DataAccess = "none"
	DataAccessBasic    DataAccess = "basic"
	DataAccessStandard DataAccess = "standard"
	DataAccessExtended DataAccess = "extended"
	DataAccessFull     DataAccess = "full"
)

// Permissions is the fixed bundle granted to a tier.
type Permissions struct {
	Messaging       bool       `json:"messaging" yaml:"messaging"`
	DataAccess      DataAccess `json:"data_access" yaml:"data_access"`
	PrioritySupport bool       `json:"priority_support" yaml:"priority_support"`
	APIAccess       bool       `json:"api_access" yaml:"api_access"`
}

var tierPermissions = map[Tier]Permissions{
	Tier1: {Messaging: false, DataAccess: DataAccessNone},
	Tier2: {Messaging: true, DataAccess: DataAccessBasic},
	Tier3: {Messaging: true, DataAccess: DataAccessStandard},
	Tier4: {Messaging: true, DataAccess: DataAccessExtended, PrioritySupport: true},
	Tier5: {Messaging: true, DataAccess: DataAccessFull, PrioritySupport: true, APIAccess: true},
}

// TierFor maps a trust score to its tier.
func TierFor(trustScore int) Tier {
	switch {
	case trustScore >= 90:
		return Tier5
	case trustScore >= 75:
		return Tier4
	case trustScore >= 60:
		return Tier3
	case trustScore >= 40:
		return Tier2
	default:
		return Tier1
	}
}

// PermissionsFor returns the bundle for t. Unknown tiers get Tier1's.
func PermissionsFor(t Tier) Permissions {
	if p, ok := tierPermissions[t]; ok {
		return p
	}
	return tierPermissions[Tier1]
}

// Tiers lists every tier from lowest to highest.
func Tiers() []Tier {
	return []Tier{Tier1, Tier2, Tier3, Tier4, Tier5}
}
