package notify

import (
	"fmt"
	"strings"

	"github.com/les-detritivores/clic-compost/internal/entity"
)

const (
	labelCard = "Carte bancaire"
	labelSepa = "Prélèvement SEPA"

	operatorBlock = "LES DETRITIVORES\n" +
		"65 quai de Brazza 33100 Bordeaux\n" +
		"bonjour@les-detritivores.co | 05 56 67 14 47"
)

// PaymentMethodLabel names the settlement method shown in the
// confirmation email: card when a card reference is present, SEPA
// debit otherwise.
func PaymentMethodLabel(sub *entity.Subscription) string {
	if sub.Card != "" {
		return labelCard
	}
	return labelSepa
}

// Subject renders the confirmation email subject for a membership number.
func Subject(id int64) string {
	return fmt.Sprintf("CLIC & COMPOST #%d - Vous êtes prêts à trier vos biodéchets !", id)
}

// renderText builds the plain-text confirmation body.
func renderText(sub *entity.Subscription) string {
	var b strings.Builder
	b.WriteString("Bienvenu " + sub.Firstname + " !\n\n")
	b.WriteString("La coopérative inclusive LES DETRITIVORES est heureuse de vous compter parmi les pionniers du tri des biodéchets :)\n\n")
	b.WriteString("Voici un récapitulatif de votre inscription :\n")
	b.WriteString("------------------------------------------------------\n")
	writeRecap(&b, sub, "\n")
	b.WriteString("-------------------------------------------------------\n\n")
	b.WriteString("N'hésitez pas à nous contacter pour toutes questions :\n")
	b.WriteString(operatorBlock)
	return b.String()
}

// renderHTML builds the HTML confirmation body, same content as the text
// variant with line breaks and rules swapped for markup.
func renderHTML(sub *entity.Subscription) string {
	var b strings.Builder
	b.WriteString("Bienvenu " + sub.Firstname + " !<br/><br/>")
	b.WriteString("La coopérative inclusive LES DETRITIVORES est heureuse de vous compter parmi les pionniers du tri des biodéchets :)<br/><br/>")
	b.WriteString("Voici un récapitulatif de votre inscription :<br/>")
	b.WriteString("<hr/>")
	writeRecap(&b, sub, "<br/>")
	b.WriteString("<hr/><br/>")
	b.WriteString("N'hésitez pas à nous contacter pour toutes questions :<br/>")
	b.WriteString(strings.ReplaceAll(operatorBlock, "\n", "<br/>"))
	return b.String()
}

func writeRecap(b *strings.Builder, sub *entity.Subscription, sep string) {
	fmt.Fprintf(b, "Numéro d'adhésion : %d%s", sub.ID, sep)
	fmt.Fprintf(b, "Société : %s%s", sub.Company, sep)
	fmt.Fprintf(b, "Contact : %s %s%s", sub.Firstname, sub.Lastname, sep)
	fmt.Fprintf(b, "Tél : %s%s", sub.Phone, sep)
	fmt.Fprintf(b, "Mél : %s%s", sub.Email, sep)
	fmt.Fprintf(b, "Adresse de collecte : %s%s", sub.Location, sep)
	fmt.Fprintf(b, "Offre : %s%s", sub.Service, sep)
	fmt.Fprintf(b, "Mode de réglement : %s%s", PaymentMethodLabel(sub), sep)
	fmt.Fprintf(b, "Date de démarrage : %s%s", sub.StartedAt.Format("02/01/2006"), sep)
}
