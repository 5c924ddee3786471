package models

// Status is the dashboard snapshot returned by GET /api/status.
type Status struct {
	Online    bool    `json:"online"`
	Net       string  `json:"net"`
	IP        string  `json:"ip"`
	Host      string  `json:"host"`
	Uptime    int64   `json:"uptime"` // seconds
	TempC     float64 `json:"tempC"`
	MemUsed   int     `json:"memUsed"`
	MemTotal  int     `json:"memTotal"`
	ModeCloud bool    `json:"modeCloud"`
}

type LogsResponse struct {
	Lines []string `json:"lines"`
}

type StaticIP struct {
	IP  string `json:"ip"`
	GW  string `json:"gw"`
	DNS string `json:"dns"`
}

type NetworkSettings struct {
	SSID     string   `json:"ssid"`
	Password string   `json:"password"`
	Mode     string   `json:"mode"` // "dhcp" or "static"
	Static   StaticIP `json:"static"`
}

type ModeRequest struct {
	Cloud bool `json:"cloud"`
}

type TriggerRequest struct {
	Event string `json:"event"`
}

// Personality traits, each in [0,10].
type Personality struct {
	Playfulness    int `json:"playfulness"`
	Cheekiness     int `json:"cheekiness"`
	Seriousness    int `json:"seriousness"`
	Empathy        int `json:"empathy"`
	Responsiveness int `json:"responsiveness"`
}

var PersonalityTraits = []string{"playfulness", "cheekiness", "seriousness", "empathy", "responsiveness"}

// DefaultPersonality matches the device's factory traits.
func DefaultPersonality() Personality {
	return Personality{Playfulness: 6, Cheekiness: 5, Seriousness: 5, Empathy: 7, Responsiveness: 7}
}

// Get returns the trait value by name.
func (p Personality) Get(trait string) (int, bool) {
	switch trait {
	case "playfulness":
		return p.Playfulness, true
	case "cheekiness":
		return p.Cheekiness, true
	case "seriousness":
		return p.Seriousness, true
	case "empathy":
		return p.Empathy, true
	case "responsiveness":
		return p.Responsiveness, true
	}
	return 0, false
}

// Set updates a trait by name. It reports false for unknown traits.
func (p *Personality) Set(trait string, v int) bool {
	switch trait {
	case "playfulness":
		p.Playfulness = v
	case "cheekiness":
		p.Cheekiness = v
	case "seriousness":
		p.Seriousness = v
	case "empathy":
		p.Empathy = v
	case "responsiveness":
		p.Responsiveness = v
	default:
		return false
	}
	return true
}

// Mood is the label derived from the traits, as shown next to the cube face.
func (p Personality) Mood() string {
	joy := (float64(p.Playfulness) + float64(p.Empathy) - float64(p.Seriousness)/2) / 2.5
	switch {
	case joy > 6:
		return "Playful"
	case joy > 3:
		return "Balanced"
	case joy > 1:
		return "Calm"
	default:
		return "Stoic"
	}
}

type PersonalityRequest struct {
	Trait string `json:"trait"`
	Value int    `json:"value"`
}

// OKResponse is the generic mock acknowledgement.
type OKResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

const (
	WSTypeLogLine = "log_line"
)
