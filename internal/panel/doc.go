// Package panel assembles the master country × year panel from the persisted
// cleaned tables and derives the lagged view the regression consumes.
//
// The WGI table is the base and the only source of classification columns;
// WDI and WEO are pivoted to one column per series or subject and joined
// with ILO on (Country_Code, Year). Rows whose employment share is not a
// proportion are dropped; log_GDP_Per_Capita is missing for non-positive GDP.
package panel
