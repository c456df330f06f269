package sources

// fallbackStreets is served when the Overpass query is unavailable. The tags
// mirror what OpenStreetMap carries for these ways.
func fallbackStreets() []osmElement {
	way := func(id int64, name, fee, maxstay string, pts ...osmPoint) osmElement {
		tags := map[string]string{
			"highway":           "residential",
			"name":              name,
			"parking:lane:both": "parallel",
		}
		if fee != "" {
			tags["fee"] = fee
		}
		if maxstay != "" {
			tags["maxstay"] = maxstay
		}
		return osmElement{Type: "way", ID: id, Tags: tags, Geometry: pts}
	}

	return []osmElement{
		way(900001, "Bohlweg", "yes", "2 hours",
			osmPoint{52.26560, 10.52640}, osmPoint{52.26300, 10.52700}, osmPoint{52.26050, 10.52760}),
		way(900002, "Steinweg", "2.00", "1 hour",
			osmPoint{52.26530, 10.52300}, osmPoint{52.26500, 10.52600}),
		way(900003, "Damm", "yes", "",
			osmPoint{52.26130, 10.52330}, osmPoint{52.25980, 10.52400}),
		way(900004, "Wendenstraße", "1,20", "",
			osmPoint{52.27000, 10.52150}, osmPoint{52.26800, 10.52200}, osmPoint{52.26650, 10.52250}),
		way(900005, "Neue Straße", "yes", "2 hours",
			osmPoint{52.26400, 10.51900}, osmPoint{52.26380, 10.52150}),
		way(900006, "Friedrich-Wilhelm-Straße", "yes", "",
			osmPoint{52.25990, 10.51850}, osmPoint{52.25700, 10.51950}),
		way(900007, "Kalenwall", "no", "",
			osmPoint{52.25680, 10.51700}, osmPoint{52.25600, 10.52200}),
		way(900008, "Museumstraße", "", "",
			osmPoint{52.26400, 10.53700}, osmPoint{52.26300, 10.54000}),
	}
}
