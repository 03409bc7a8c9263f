package repositories

import (
	"errors"
	"fmt"

	"barangayhealth/internal/models"
)

var ErrUnknownCategory = errors.New("unknown inventory category")

// categoryTables maps a category to the stock, catalogue and transaction tables that back it.
// Column names follow the existing health schema.
type categoryTables struct {
	stockTable string
	stockID    string
	stockQty   string
	stockUnit  string
	stockInv   string // FK to inventory.inv_id
	stockList  string // FK to the catalogue row

	listTable string
	listID    string
	listName  string

	txnTable  string
	txnID     string
	txnQty    string
	txnAction string
	txnStock  string // FK to the stock row
}

var tablesByCategory = map[models.Category]categoryTables{
	models.CategoryMedicine: {
		stockTable: "medicine_inventory", stockID: "minv_id", stockQty: "minv_qty_avail", stockUnit: "minv_qty_unit", stockInv: "inv_id", stockList: "med_id",
		listTable: "medicine_list", listID: "med_id", listName: "med_name",
		txnTable: "medicine_transaction", txnID: "mdt_id", txnQty: "mdt_qty", txnAction: "mdt_action", txnStock: "minv_id",
	},
	models.CategoryFirstAid: {
		stockTable: "firstaid_inventory", stockID: "finv_id", stockQty: "finv_qty_avail", stockUnit: "finv_qty_unit", stockInv: "inv_id", stockList: "fa_id",
		listTable: "firstaid_list", listID: "fa_id", listName: "fa_name",
		txnTable: "firstaid_transaction", txnID: "fat_id", txnQty: "fat_qty", txnAction: "fat_action", txnStock: "finv_id",
	},
	models.CategoryCommodity: {
		stockTable: "commodity_inventory", stockID: "cinv_id", stockQty: "cinv_qty_avail", stockUnit: "cinv_qty_unit", stockInv: "inv_id", stockList: "com_id",
		listTable: "commodity_list", listID: "com_id", listName: "com_name",
		txnTable: "commodity_transaction", txnID: "comt_id", txnQty: "comt_qty", txnAction: "comt_action", txnStock: "cinv_id",
	},
	models.CategoryVaccine: {
		stockTable: "vaccine_stock", stockID: "vacstck_id", stockQty: "vacstck_qty_avail", stockUnit: "vacstck_unit", stockInv: "inv_id", stockList: "vac_id",
		listTable: "vaccine_list", listID: "vac_id", listName: "vac_name",
		txnTable: "antigen_transaction", txnID: "antt_id", txnQty: "antt_qty", txnAction: "antt_action", txnStock: "vacstck_id",
	},
	models.CategoryImmunization: {
		stockTable: "immunization_stock", stockID: "imzstck_id", stockQty: "imzstck_avail", stockUnit: "imzstck_unit", stockInv: "inv_id", stockList: "imz_id",
		listTable: "immunization_supplies", listID: "imz_id", listName: "imz_name",
		txnTable: "immunization_transaction", txnID: "imzt_id", txnQty: "imzt_qty", txnAction: "imzt_action", txnStock: "imzstck_id",
	},
}

func tablesFor(category models.Category) (categoryTables, error) {
	t, ok := tablesByCategory[category]
	if !ok {
		return categoryTables{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return t, nil
}

// itemSelect is the shared projection for stock rows: id, name, available, unit, inv_id, expiry_date, is_archived.
func (t categoryTables) itemSelect() string {
	return fmt.Sprintf(`
		SELECT s.%[2]s, COALESCE(l.%[6]s, ''), s.%[3]s, COALESCE(s.%[4]s, ''), i.inv_id, i.expiry_date, COALESCE(i.is_archived, false)
		FROM %[1]s s
		LEFT JOIN %[5]s l ON l.%[7]s = s.%[8]s
		LEFT JOIN inventory i ON i.inv_id = s.%[9]s`,
		t.stockTable, t.stockID, t.stockQty, t.stockUnit, t.listTable, t.listName, t.listID, t.stockList, t.stockInv)
}

func (t categoryTables) listActiveQuery() string {
	return t.itemSelect() + fmt.Sprintf(`
		WHERE COALESCE(i.is_archived, false) = false
		ORDER BY s.%s`, t.stockID)
}

func (t categoryTables) listExpiredQuery() string {
	return t.itemSelect() + fmt.Sprintf(`
		WHERE i.is_archived = false AND i.expiry_date < $1
		ORDER BY s.%s`, t.stockID)
}

func (t categoryTables) lockStockQuery() string {
	return fmt.Sprintf(`
		SELECT s.%[2]s, COALESCE(s.%[3]s, ''), s.%[4]s
		FROM %[1]s s
		WHERE s.%[5]s = $1
		FOR UPDATE`, t.stockTable, t.stockQty, t.stockUnit, t.stockInv, t.stockID)
}

const archiveInventoryQuery = `
		UPDATE inventory
		SET is_archived = true, updated_at = NOW()
		WHERE inv_id = $1 AND is_archived = false`

func (t categoryTables) insertTransactionQuery() string {
	return fmt.Sprintf(`
		INSERT INTO %[1]s (%[3]s, %[4]s, staff_id, created_at, %[5]s)
		VALUES ($1, $2, $3, NOW(), $4)
		RETURNING %[2]s, created_at`, t.txnTable, t.txnID, t.txnQty, t.txnAction, t.txnStock)
}
