// Package charts embeds the two per-channel line charts into cleaned EMG
// workbooks. Chart titles are derived from the <subject>-<scenario> filename
// stem; layout (axis bounds, tick skip, rotation, anchors) comes from
// config.ChartConfig.
package charts
