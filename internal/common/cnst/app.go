package cnst

const (
	// AppName is the name of the application
	AppName = "publisher"
	// CommandName is the name of the command-line binary
	CommandName = "publisher"
)

const (
	// PublisherYaml is the default configuration file name
	PublisherYaml = "publisher.yaml"
)
