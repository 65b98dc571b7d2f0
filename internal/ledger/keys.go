package ledger

import "fmt"

// Key layout of the persisted key space. One namespace per record family;
// the full state of all three ledgers is recoverable from these keys alone.
const (
	KeyEventCounter = "events:counter"
	KeyNFTCounter   = "nfts:counter"
	KeyNFTAdmin     = "nft:admin"
	KeyRewardInfo   = "reward:info"
	KeyRewardAdmin  = "reward:admin"

	// BalanceKeyPrefix is exported for the conservation auditor, which
	// sums every balance under it.
	BalanceKeyPrefix = "reward:balance:"
)

func eventKey(id uint64) string { return fmt.Sprintf("event:%d", id) }

func attendeesKey(id uint64) string { return fmt.Sprintf("event:%d:attendees", id) }

func eventNFTsKey(id uint64) string { return fmt.Sprintf("event:%d:nfts", id) }

func ticketKey(id uint64, attendee string) string {
	return fmt.Sprintf("ticket:%d:%s", id, attendee)
}

func userTicketsKey(principal string) string { return fmt.Sprintf("user:%s:tickets", principal) }

func nftOwnerKey(id uint64) string { return fmt.Sprintf("nft:%d:owner", id) }

func nftMetaKey(id uint64) string { return fmt.Sprintf("nft:%d:meta", id) }

func ownerNFTsKey(principal string) string { return fmt.Sprintf("owner:%s:nfts", principal) }

func balanceKey(principal string) string { return BalanceKeyPrefix + principal }

func eventRewardKey(id uint64) string { return fmt.Sprintf("reward:event:%d", id) }

func claimKey(principal string, id uint64) string {
	return fmt.Sprintf("reward:claim:%s:%d", principal, id)
}
