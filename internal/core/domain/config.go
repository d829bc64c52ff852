package domain

// Config is written once by instantiate and never changes afterwards.
type Config struct {
	Admin Principal `json:"admin"`
}
