// Package audio plays the chime that accompanies an overlay opening.
// It uses the beep library to play WAV, OGG, and MP3 files with volume control.
package audio
