// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// MetaContractArgs is the payload of a transaction sent to the meta contract.
type MetaContractArgs struct {
	Call MetaContractCall `serialize:"true"`
}

// MetaContractCall is one of: *CreateAccount.
type MetaContractCall interface {
	isMetaContractCall()
}

// CreateAccount registers a new account owned by [Script].
type CreateAccount struct {
	Script Script `serialize:"true"`
}

func (*CreateAccount) isMetaContractCall() {}

// SUDTArgs is the payload of a transaction sent to a simple-UDT account.
type SUDTArgs struct {
	Call SUDTCall `serialize:"true"`
}

// SUDTCall is one of: *SUDTQuery, *SUDTTransfer.
type SUDTCall interface {
	isSUDTCall()
}

// SUDTQuery returns the balance of [AccountID].
type SUDTQuery struct {
	AccountID uint32 `serialize:"true"`
}

func (*SUDTQuery) isSUDTCall() {}

// SUDTTransfer moves [Amount] from the sender to the account owning [To] and
// pays [Fee] to the block producer. The recipient is created if needed.
type SUDTTransfer struct {
	To     Script `serialize:"true"`
	Amount uint64 `serialize:"true"`
	Fee    uint64 `serialize:"true"`
}

func (*SUDTTransfer) isSUDTCall() {}
