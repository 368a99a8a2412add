package model

// Tables lists every model managed by AutoMigrate.
var Tables = []interface{}{
	&User{},
	&Product{},
	&CategoryThreshold{},
	&Sale{},
	&SaleItem{},
}
