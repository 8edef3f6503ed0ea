// Package report renders and summarises the outcome of a twin insertion: a z-slice as
// PNG (gonum/plot) or interactive HTML (go-echarts), and per-region twin fractions.
package report
