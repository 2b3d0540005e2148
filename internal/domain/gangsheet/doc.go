// Package gangsheet contains the Gangsheet bounded context.
// This context is responsible for laying ordered design prints out onto
// fixed-width print media rolls (gang sheets) and for tracking the
// generation jobs that render those rolls into final raster artifacts.
//
// The layout pipeline is a chain of pure stages: each DesignInput is
// resolved to pixel dimensions at the tenant DPI, expanded into one
// PlaceableUnit per ordered copy, and packed into Placements on one or
// more Rolls. Every stage produces a new fully-populated value; nothing
// is mutated across stage boundaries, so identical input always yields
// an identical PlacementResult.
package gangsheet
