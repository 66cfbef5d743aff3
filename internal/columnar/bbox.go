package columnar

// bboxDims returns 4 for a planar bbox and 6 for one carrying a z range,
// mirroring the STAC Item.bbox arity rule.
func bboxDims(bbox []float64) int {
	if len(bbox) == 6 {
		return 6
	}
	return 4
}

// bboxStruct materializes a bbox slice into the {xmin, ymin, [zmin],
// xmax, ymax, [zmax]} ordering used for the bbox struct column, per
// spec.md's resolved Open Question on 6-element z-ordering.
func bboxStruct(bbox []float64) map[string]float64 {
	if len(bbox) == 0 {
		return nil
	}
	if len(bbox) == 6 {
		return map[string]float64{
			"xmin": bbox[0], "ymin": bbox[1], "zmin": bbox[2],
			"xmax": bbox[3], "ymax": bbox[4], "zmax": bbox[5],
		}
	}
	return map[string]float64{
		"xmin": bbox[0], "ymin": bbox[1],
		"xmax": bbox[2], "ymax": bbox[3],
	}
}

// bboxFromStruct reverses bboxStruct.
func bboxFromStruct(s map[string]float64) []float64 {
	if s == nil {
		return nil
	}
	if _, has3D := s["zmin"]; has3D {
		return []float64{s["xmin"], s["ymin"], s["zmin"], s["xmax"], s["ymax"], s["zmax"]}
	}
	return []float64{s["xmin"], s["ymin"], s["xmax"], s["ymax"]}
}
