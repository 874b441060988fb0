/*
Package bytetrack implements the BYTE multi-object tracking algorithm for
associating per-frame object detection results into persistent identity
tracks.

The tracker consumes bounding boxes with confidence scores from any object
detector and matches them against the predicted positions of existing tracks
in two passes: high confidence detections are matched first, then low
confidence detections are given a second chance to extend tracks whose object
is temporarily occluded or blurred.  Matching uses IoU cost matrices solved
with the Jonker-Volgenant linear assignment algorithm.

Motion prediction is pluggable through the Predictor interface; a constant
velocity Kalman filter built on gonum is the default.
*/
package bytetrack
