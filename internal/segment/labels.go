// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package segment

// Segment names, from highest to lowest engagement.
const (
	LabelChampions    = "Champions"
	LabelLoyal        = "Loyal Customers"
	LabelNewCustomers = "New Customers"
	LabelAtRisk       = "At Risk"
	LabelLost         = "Lost"
	LabelHibernating  = "Hibernating"
	LabelRegular      = "Regular"
)

// Definition describes a segment for the definitions endpoint.
type Definition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Definitions lists all segments in rule-evaluation order.
func Definitions() []Definition {
	return []Definition{
		{LabelChampions, "Bought recently, buy often, and spend the most"},
		{LabelLoyal, "Buy regularly and recently"},
		{LabelNewCustomers, "First purchases within the last month"},
		{LabelAtRisk, "Used to buy often but have not purchased in months"},
		{LabelLost, "No purchase in six months or more"},
		{LabelHibernating, "Low activity, last purchase three months ago or more"},
		{LabelRegular, "Everyone else"},
	}
}

// labelFor maps a centroid's original-scale RFM values to a segment
// name. Rules are evaluated in order, first match wins. Labels depend
// only on centroid values, never on cluster enumeration order, so they
// are stable across reruns.
func labelFor(recencyDays, frequency, monetary float64) string {
	switch {
	case recencyDays < 30 && frequency >= 10 && monetary >= 10000:
		return LabelChampions
	case recencyDays < 60 && frequency >= 5:
		return LabelLoyal
	case recencyDays < 30 && frequency < 3:
		return LabelNewCustomers
	case recencyDays >= 90 && frequency >= 5:
		return LabelAtRisk
	case recencyDays >= 180:
		return LabelLost
	case recencyDays >= 90:
		return LabelHibernating
	default:
		return LabelRegular
	}
}
