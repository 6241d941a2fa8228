package assistant

import (
	"fmt"
	"strings"

	"bookline/models"
)

const defaultLanguage = "en"

// promptKey selects a phrasing pool. The six slot kinds are keys, plus the
// confirmation step and the escalation message.
type promptKey string

const (
	promptConfirmation promptKey = "confirmation"
	promptEscalation   promptKey = "escalation"
)

// promptPools holds the per-step phrasing pools. Selection is turn-count
// modulo pool size, so a re-asked step cycles phrasings deterministically
// and never repeats the exact previous prompt while the pool has size > 1.
var promptPools = map[string]map[promptKey][]string{
	"en": {
		promptKey(models.SlotService): {
			"Which service would you like to book?",
			"What service can we do for you?",
		},
		promptKey(models.SlotLocation): {
			"Which of our locations works for you?",
			"Where would you like to come in?",
		},
		promptKey(models.SlotDate): {
			"What day would you like to come in?",
			"Which date suits you?",
		},
		promptKey(models.SlotTime): {
			"What time works for you?",
			"Around what time should we pencil you in?",
		},
		promptKey(models.SlotName): {
			"May I have your name for the booking?",
			"Who should we put the appointment under?",
		},
		promptKey(models.SlotEmail): {
			"What email should we send the confirmation to?",
			"Could you share an email address for the confirmation?",
		},
		promptConfirmation: {
			"Shall I go ahead and book it? (yes/no)",
			"Can I confirm this appointment for you? (yes/no)",
		},
		promptEscalation: {
			"I'm having trouble getting this right. Let me hand you over to one of our staff.",
		},
	},
	"es": {
		promptKey(models.SlotService): {
			"¿Qué servicio le gustaría reservar?",
			"¿Qué servicio podemos hacer por usted?",
		},
		promptKey(models.SlotLocation): {
			"¿Cuál de nuestras sedes le conviene?",
			"¿Dónde le gustaría atenderse?",
		},
		promptKey(models.SlotDate): {
			"¿Qué día le gustaría venir?",
			"¿Qué fecha le viene bien?",
		},
		promptKey(models.SlotTime): {
			"¿A qué hora le conviene?",
			"¿Alrededor de qué hora le anotamos?",
		},
		promptKey(models.SlotName): {
			"¿Me da su nombre para la reserva?",
			"¿A nombre de quién ponemos la cita?",
		},
		promptKey(models.SlotEmail): {
			"¿A qué correo enviamos la confirmación?",
			"¿Podría compartir un correo para la confirmación?",
		},
		promptConfirmation: {
			"¿Confirmo la cita? (sí/no)",
			"¿Procedo a reservar la cita? (sí/no)",
		},
		promptEscalation: {
			"Estoy teniendo problemas para ayudarle. Le paso con uno de nuestros empleados.",
		},
	},
}

// ackTemplates acknowledge an accepted slot, keyed off the validated kind.
var ackTemplates = map[string]map[models.SlotKind]string{
	"en": {
		models.SlotService:  "Great, %s it is.",
		models.SlotLocation: "Noted, we'll see you at %s.",
		models.SlotDate:     "Perfect, %s works.",
		models.SlotTime:     "Got it, %s.",
		models.SlotName:     "Thanks, %s.",
		models.SlotEmail:    "Thanks, we'll send the confirmation to %s.",
	},
	"es": {
		models.SlotService:  "Perfecto, %s entonces.",
		models.SlotLocation: "Anotado, le esperamos en %s.",
		models.SlotDate:     "Perfecto, el %s.",
		models.SlotTime:     "Entendido, a las %s.",
		models.SlotName:     "Gracias, %s.",
		models.SlotEmail:    "Gracias, enviaremos la confirmación a %s.",
	},
}

// clarifications rephrase the re-ask when a candidate was rejected, per
// reject code, so a "not found" never reads like a "multiple matches".
var clarifications = map[string]map[RejectCode]string{
	"en": {
		RejectNotFound:    "I couldn't find that in our catalog.",
		RejectAmbiguous:   "That matches more than one of our services, could you be more specific?",
		RejectInvalid:     "Sorry, I didn't catch that.",
		RejectPastDate:    "That date has already passed.",
		RejectUnavailable: "That time isn't free, I'm afraid.",
		RejectBackend:     "I couldn't check that just now.",
	},
	"es": {
		RejectNotFound:    "No encontré eso en nuestro catálogo.",
		RejectAmbiguous:   "Eso coincide con varios de nuestros servicios, ¿podría ser más específico?",
		RejectInvalid:     "Perdone, no le entendí.",
		RejectPastDate:    "Esa fecha ya pasó.",
		RejectUnavailable: "Esa hora no está libre, lo siento.",
		RejectBackend:     "No pude comprobarlo en este momento.",
	},
}

// replyTexts are the fixed outcome messages around submission.
var replyTexts = map[string]map[string]string{
	"en": {
		"booked":        "You're all set! Your booking reference is %s. See you then.",
		"unavailable":   "I'm sorry, that time was just taken and the nearby times are full too.",
		"backend_error": "I couldn't reach our scheduling system just now. Please say yes again in a moment.",
		"canceled":      "No problem, I've discarded that booking. Just message me when you'd like to start over.",
	},
	"es": {
		"booked":        "¡Listo! Su referencia de reserva es %s. Le esperamos.",
		"unavailable":   "Lo siento, esa hora se acaba de ocupar y las horas cercanas también están llenas.",
		"backend_error": "No pude contactar con nuestro sistema de citas. Diga sí de nuevo en un momento.",
		"canceled":      "Sin problema, descarté esa reserva. Escríbame cuando quiera empezar de nuevo.",
	},
}

func replyText(language, key string) string {
	m, ok := replyTexts[language]
	if !ok {
		m = replyTexts[defaultLanguage]
	}
	return m[key]
}

// affirmatives is the closed confirmation vocabulary. Anything else at the
// confirmation step means "not yet confirmed".
var affirmatives = map[string]bool{
	"yes": true, "yes please": true, "yep": true, "yeah": true,
	"confirm": true, "confirmed": true, "ok": true, "okay": true,
	"correct": true, "sure": true, "si": true, "sí": true, "claro": true,
}

// negatives is the closed cancellation vocabulary recognized at the
// confirmation step.
var negatives = map[string]bool{
	"no": true, "cancel": true, "stop": true, "nevermind": true,
	"never mind": true, "no thanks": true,
}

func isAffirmative(message string) bool {
	return affirmatives[normalizeIntent(message)]
}

func isNegative(message string) bool {
	return negatives[normalizeIntent(message)]
}

func normalizeIntent(message string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(message), ".,!"))
}

func poolsFor(language string) map[promptKey][]string {
	if pools, ok := promptPools[language]; ok {
		return pools
	}
	return promptPools[defaultLanguage]
}

// promptFor picks the phrasing for a key by turn count. When the pick would
// repeat lastPrompt exactly, the next phrasing in the pool is used instead.
func promptFor(language string, key promptKey, turnCount int, lastPrompt string) string {
	pool := poolsFor(language)[key]
	if len(pool) == 0 {
		pool = promptPools[defaultLanguage][key]
	}
	if len(pool) == 0 {
		return ""
	}

	prompt := pool[turnCount%len(pool)]
	if prompt == lastPrompt && len(pool) > 1 {
		prompt = pool[(turnCount+1)%len(pool)]
	}
	return prompt
}

func ackFor(language string, kind models.SlotKind, value string) string {
	templates, ok := ackTemplates[language]
	if !ok {
		templates = ackTemplates[defaultLanguage]
	}
	tmpl, ok := templates[kind]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tmpl, value)
}

func clarificationFor(language string, code RejectCode) string {
	m, ok := clarifications[language]
	if !ok {
		m = clarifications[defaultLanguage]
	}
	return m[code]
}

// confirmationSummary recaps the collected booking before asking to confirm.
func confirmationSummary(session *models.BookingSession) string {
	service := session.SlotFor(models.SlotService)
	location := session.SlotFor(models.SlotLocation)
	date := session.SlotFor(models.SlotDate)
	timeSlot := session.SlotFor(models.SlotTime)

	if session.Language == "es" {
		return fmt.Sprintf("Resumen: %s en %s el %s a las %s.",
			service.Value, location.Value, date.ISODate, minutesToClock(timeSlot.StartMinute))
	}
	return fmt.Sprintf("To recap: %s at %s on %s at %s.",
		service.Value, location.Value, date.ISODate, minutesToClock(timeSlot.StartMinute))
}

func minutesToClock(startMinute int) string {
	return fmt.Sprintf("%02d:%02d", startMinute/60, startMinute%60)
}
