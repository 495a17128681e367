package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemType_Resource(t *testing.T) {
	r, ok := ItemCashVoucher.Resource()
	assert.True(t, ok)
	assert.Equal(t, "cash-vouchers", r)

	r, ok = ItemChequeVoucher.Resource()
	assert.True(t, ok)
	assert.Equal(t, "cheque-vouchers", r)

	_, ok = ItemType("petty-cash").Resource()
	assert.False(t, ok)
}

func TestItemTypeForResource(t *testing.T) {
	it, ok := ItemTypeForResource("cheque-vouchers")
	assert.True(t, ok)
	assert.Equal(t, ItemChequeVoucher, it)

	_, ok = ItemTypeForResource("users")
	assert.False(t, ok)
}

func TestItemType_Label(t *testing.T) {
	assert.Equal(t, "Cash voucher", ItemCashVoucher.Label())
	assert.Equal(t, "", ItemType("").Label())
}

func TestBackendError_Error(t *testing.T) {
	err := &BackendError{Status: 404, Message: "not found"}
	assert.Equal(t, "backend responded 404: not found", err.Error())
}

func TestValidItemID(t *testing.T) {
	assert.True(t, ValidItemID("42"))
	assert.True(t, ValidItemID("CV-7"))
	assert.True(t, ValidItemID("..x"))
	assert.False(t, ValidItemID(""))
	assert.False(t, ValidItemID("."))
	assert.False(t, ValidItemID(".."))
}
