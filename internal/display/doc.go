// Package display is the GTK4 host surface for overlay panels. Each attached
// panel is shown in its own Wayland layer-shell window whose widgets carry
// the panel's CSS classes, so fades are driven by the theme stylesheet.
package display
