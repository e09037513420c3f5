package calendar

const (
	DefaultHourHeightPx      = 60.0
	DefaultTileGapFraction   = 0.015
	DefaultMaxVisiblePerCell = 2
	DefaultMinTileHeightPx   = 15.0
	DefaultRowHeightPx       = 24.0
	DefaultCellGapPx         = 4.0
)

// Options holds the geometry constants a rendering layer may tune. Zero
// sizes and counts fall back to the package defaults. The two gaps are
// taken as given, so zero turns them off; start from DefaultOptions to keep
// the default gaps. Out of range gaps fall back to the defaults.
type Options struct {
	// HourHeightPx is the height of one hour row in the hour grid.
	HourHeightPx float64 `json:"hour_height_px"`
	// TileGapFraction is the horizontal gap inserted between tiles of a
	// cluster, as a fraction of the row width.
	TileGapFraction float64 `json:"tile_gap_fraction"`
	// MaxVisiblePerCell is the number of row slots a week-grid cell shows
	// before collapsing the rest into an overflow count.
	MaxVisiblePerCell int `json:"max_visible_per_cell"`
	// MinTileHeightPx keeps zero-length windows visible in the hour grid.
	MinTileHeightPx float64 `json:"min_tile_height_px"`
	// RowHeightPx is the height of one row slot in a week-grid cell.
	RowHeightPx float64 `json:"row_height_px"`
	// CellGapPx is the visual margin between adjacent day cells; bars add
	// it once per crossed boundary so they render without seams.
	CellGapPx float64 `json:"cell_gap_px"`
	// MaxTilesPerCluster caps the visible tiles of one hour-grid cluster.
	// Zero means unlimited.
	MaxTilesPerCluster int `json:"max_tiles_per_cluster"`
}

func DefaultOptions() Options {
	return Options{
		HourHeightPx:      DefaultHourHeightPx,
		TileGapFraction:   DefaultTileGapFraction,
		MaxVisiblePerCell: DefaultMaxVisiblePerCell,
		MinTileHeightPx:   DefaultMinTileHeightPx,
		RowHeightPx:       DefaultRowHeightPx,
		CellGapPx:         DefaultCellGapPx,
	}
}

func (o Options) normalized() Options {
	if o.HourHeightPx <= 0 {
		o.HourHeightPx = DefaultHourHeightPx
	}
	if o.TileGapFraction < 0 || o.TileGapFraction >= 1 {
		o.TileGapFraction = DefaultTileGapFraction
	}
	if o.MaxVisiblePerCell <= 0 {
		o.MaxVisiblePerCell = DefaultMaxVisiblePerCell
	}
	if o.MinTileHeightPx < 0 {
		o.MinTileHeightPx = 0
	}
	if o.MinTileHeightPx == 0 {
		o.MinTileHeightPx = DefaultMinTileHeightPx
	}
	if o.RowHeightPx <= 0 {
		o.RowHeightPx = DefaultRowHeightPx
	}
	if o.CellGapPx < 0 {
		o.CellGapPx = DefaultCellGapPx
	}
	if o.MaxTilesPerCluster < 0 {
		o.MaxTilesPerCluster = 0
	}
	return o
}
