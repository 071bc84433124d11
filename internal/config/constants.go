package config

// Application constants
const (
	AppName    = "turnout"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment overrides: TURNOUT_VOTER_FILE, TURNOUT_LOGGING_LEVEL, ...
	EnvPrefix = "TURNOUT"

	// Input defaults
	DefaultVoterFile = "./data/voters.csv"
	DefaultVoteFile  = "./data/votes.csv"
	DefaultDelimiter = ","

	// Ages with this many registered voters or fewer are not plotted.
	DefaultMinRegistered = 40
	DefaultElectionYear  = 2020
	DefaultState         = "Nevada"
	AdultAge             = 18

	// Normalization modes
	NormalizeAuto = "auto"
	NormalizeOn   = "on"
	NormalizeOff  = "off"

	// Renderers
	RendererXLSX = "xlsx"
	RendererCSV  = "csv"
	RendererHTTP = "http"
	RendererNone = "none"

	DefaultOutputPath = "turnout.xlsx"
	DefaultHTTPAddr   = "127.0.0.1:8080"

	DefaultLogFile = "logs/turnout.log"
)

// configFileLocations are searched, in order, when no -config flag is given.
var configFileLocations = []string{
	"turnout.yaml",
	"configs/turnout.yaml",
	"../configs/turnout.yaml",
}
