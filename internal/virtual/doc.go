// Package virtual implements windowed rendering for large, fixed-height lists.
//
// Only the items inside (or near) the viewport are materialized. The package
// is split into three cooperating parts:
//   - Tracker: holds container height and scroll offset, resolves declared
//     heights (rows, "50%", "600px") and notifies subscribers on change
//   - ComputeWindow: pure function deriving the inclusive index range to render
//   - Project / RenderEntries: cut the window out of the dataset and attach the
//     vertical offset, total extent and a stable key to each entry
//
// List ties the three together and publishes a RenderSlice whenever the
// geometry or the dataset changes. The package emits data and geometry only;
// hosts decide how entries become terminal lines or any other output.
package virtual
