// conf/consts.go hard coded constants
package conf

const (
	SampleRate      = 44100 // Sample rate for loudness detection capture
	BitDepth        = 16    // Bit depth of captured audio
	NumChannels     = 1     // Number of channels of captured audio
	FramesPerBuffer = 1024  // Audio frames per loudness evaluation buffer

	BytesPerPixel = 3 // rawvideo rgb24 frames

	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)
