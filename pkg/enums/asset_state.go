package enums

// AssetState describes where a media asset sits in its lifecycle.
// A purged asset has no row at all, so it has no state value.
type AssetState string

const (
	AssetStateActive  AssetState = "active"
	AssetStateDeleted AssetState = "deleted"
)

// String returns the literal string for the state.
func (s AssetState) String() string {
	return string(s)
}

// IsVisible reports whether default catalog reads may return an asset in this state.
func (s AssetState) IsVisible() bool {
	return s == AssetStateActive
}
