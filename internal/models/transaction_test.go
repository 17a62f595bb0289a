package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionStatus(t *testing.T) {
	t.Run("terminal states", func(t *testing.T) {
		assert.True(t, StatusCompleted.Terminal())
		assert.True(t, StatusRejected.Terminal())
		assert.True(t, StatusCancelled.Terminal())
		assert.False(t, StatusPendingAdminApproval.Terminal())
		assert.False(t, StatusPendingReceiverConfirm.Terminal())
	})

	t.Run("valid statuses", func(t *testing.T) {
		assert.True(t, StatusPendingAdminApproval.Valid())
		assert.False(t, TransactionStatus("ARCHIVED").Valid())
	})
}

func TestDirection_Valid(t *testing.T) {
	assert.True(t, DirectionTransfer.Valid())
	assert.True(t, DirectionDividend.Valid())
	assert.True(t, DirectionReward.Valid())
	assert.False(t, Direction("REFUND").Valid())
}

func TestTransaction_Involves(t *testing.T) {
	sender, receiver := "sender", "receiver"

	transfer := Transaction{FromAccount: &sender, ToAccount: &receiver}
	assert.True(t, transfer.Involves("sender"))
	assert.True(t, transfer.Involves("receiver"))
	assert.False(t, transfer.Involves("stranger"))

	grant := Transaction{ToAccount: &receiver}
	assert.True(t, grant.Involves("receiver"))
	assert.False(t, grant.Involves("sender"))
}
