package config

// Default values.
const (
	DefaultIndex         = IndexComplete
	DefaultShow          = ShowRatio
	DefaultWorkers       = 1
	DefaultOutputFormat  = "text"
	DefaultOutputNoColor = false
	DefaultLogLevel      = "info"
	DefaultLogJSON       = false
	DefaultOTLPEndpoint  = ""
	DefaultOTLPInsecure  = false
	DefaultOTLPHeaders   = ""
)
