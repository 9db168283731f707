// Package theme builds the GTK stylesheet for overlay panels: a bundled or
// user theme, the fade keyframes, and one animation-duration rule per fade
// duration in use. Themes are hot-reloaded from
// ~/.config/monolog/themes/.
package theme
