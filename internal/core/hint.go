package core

import "fmt"

// Hint produces the short advisory line shown above the transaction list.
// Branch order matters: empty list, all-zero sums and negative balance win
// over the top-category message.
func Hint(list []Transaction, sums Sums) string {
	if len(list) == 0 {
		return "Добавь первую операцию — и я начну считать итоги."
	}
	if sums.Income+sums.Expense == 0 {
		return "Заполни суммы — и будут подсказки."
	}
	if sums.Balance < 0 {
		return "Баланс минус. Попробуй снизить расходы или добавь доходы, чтобы выйти в плюс."
	}
	if top, val := TopExpenseCategory(list); top != "" && val > 0 {
		return fmt.Sprintf("Больше всего расходов в категории “%s”: %s. Если хочешь экономить — начни отсюда.", top, FormatAmount(val))
	}
	return "Ты молодец: баланс в плюсе. Продолжай фиксировать операции — будет точнее."
}
