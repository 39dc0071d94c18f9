package config

// FilterConfiguration holds expression lists evaluated against each torrent.
type FilterConfiguration struct {
	Ignore []string
	Pause  []string
	Resume []string
}
