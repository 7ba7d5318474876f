package normalize

// Fields raw payload columns of one report.
type Fields struct {
	Occurrences []byte
	Detained    []byte
	Bombs       []byte
	Lockpicks   []byte
	Ammo        []byte
	Ammunition  []byte
	Municao     []byte
	Weapons     []byte
	Drugs       []byte
	MarkedMoney []byte
	Members     []byte
}

// Payload canonical numbers of one report.
type Payload struct {
	Occurrences float64
	Detained    float64
	Bombs       float64
	Lockpicks   float64
	Ammo        float64
	Weapons     float64
	Drugs       float64
	Money       float64
	Members     []Member
}

// TotalItems seized items counted for rankings. Money and occurrences are
// tracked separately.
func (p Payload) TotalItems() float64 {
	return p.Bombs + p.Lockpicks + p.Detained + p.Weapons + p.Drugs + p.Ammo
}

// Normalize decodes and reduces every payload column.
func Normalize(f Fields) Payload {
	return Payload{
		Occurrences: Count(Decode(f.Occurrences)),
		Detained:    Count(Decode(f.Detained)),
		Bombs:       Count(Decode(f.Bombs)),
		Lockpicks:   Count(Decode(f.Lockpicks)),
		Ammo:        Count(firstPresent(f.Ammunition, f.Ammo, f.Municao)),
		Weapons:     Weapons(Decode(f.Weapons)),
		Drugs:       Drugs(Decode(f.Drugs)),
		Money:       Money(Decode(f.MarkedMoney)),
		Members:     Members(Decode(f.Members)),
	}
}

// firstPresent ammunition was stored under three column names over time.
func firstPresent(columns ...[]byte) Value {
	for _, c := range columns {
		if v := Decode(c); v.Present() {
			return v
		}
	}
	return Value{}
}
