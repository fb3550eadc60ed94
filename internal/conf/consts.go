// conf/consts.go hard coded constants
package conf

const (
	DefaultK          = 10  // Neighbors consulted per prediction
	TrainingTimes     = 50  // Exemplars captured per training phase
	TouchedConfidence = 0.8 // Confidence that must be exceeded to report a touch

	EnvPrefix = "HANDSOFF" // Prefix of bound environment variables
)
