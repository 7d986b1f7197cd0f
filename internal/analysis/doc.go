// Package analysis is the downstream consumer of the master panel.
//
// It only reads master_panel_cleaned.csv. Prepare rescales the employment
// share to percent and recomputes log GDP per capita with a 1e-6 floor when
// the panel lacks it. RegionTrends averages the governance indicators per
// region and year; EstimateLag fits the two-way fixed effects regression of
// government effectiveness on the lagged share with country-clustered
// standard errors. Figures are written as standalone plotly HTML pages.
package analysis
