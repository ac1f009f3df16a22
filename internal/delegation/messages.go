package delegation

// User-facing copy for the separate-message channel. Raw error detail stays
// in the server logs; these are the only failure texts an external user sees.

var conflictMessages = map[string]string{
	"en": "That time doesn't seem to work with the calendar. Would you like to try a different time?",
	"he": "נראה שהזמן הזה תפוס ביומן. רוצה לנסות זמן אחר?",
	"es": "Parece que esa hora no está libre en el calendario. ¿Quieres probar otra hora?",
	"fr": "Ce créneau ne semble pas disponible. Voulez-vous essayer un autre horaire ?",
	"de": "Dieser Termin scheint im Kalender belegt zu sein. Möchten Sie eine andere Zeit versuchen?",
}

var stoppedMessages = map[string]string{
	"en": "I couldn't finish setting this up, so I've stopped the process for now. We can try again whenever you're ready.",
	"he": "לא הצלחתי להשלים את התהליך, אז עצרתי אותו בינתיים. אפשר לנסות שוב מתי שנוח לך.",
	"es": "No pude completar el proceso, así que lo detuve por ahora. Podemos intentarlo de nuevo cuando quieras.",
	"fr": "Je n'ai pas pu terminer, j'ai donc arrêté le processus pour l'instant. Nous pourrons réessayer quand vous voulez.",
	"de": "Ich konnte den Vorgang nicht abschließen und habe ihn vorerst gestoppt. Wir können es jederzeit erneut versuchen.",
}

var closingRemarks = map[string]string{
	"en": "All done! I've taken care of everything — you should see the details shortly.",
	"he": "הכל מוכן! טיפלתי בהכל — הפרטים יגיעו אליך בקרוב.",
	"es": "¡Listo! Me he encargado de todo; verás los detalles en breve.",
	"fr": "C'est fait ! Je me suis occupé de tout, vous recevrez les détails sous peu.",
	"de": "Alles erledigt! Ich habe mich um alles gekümmert — die Details folgen in Kürze.",
	"pt": "Tudo pronto! Cuidei de tudo — os detalhes chegam em breve.",
	"it": "Fatto! Mi sono occupato di tutto — a breve i dettagli.",
	"ru": "Готово! Я обо всём позаботился — детали скоро появятся.",
	"ar": "تم كل شيء! لقد اهتممت بالأمر — ستصلك التفاصيل قريبًا.",
	"zh": "全部搞定！我已安排妥当，详情稍后送达。",
	"ja": "すべて完了しました！手配は済んでいます。詳細は追ってお知らせします。",
	"ko": "모두 완료했습니다! 자세한 내용은 곧 확인하실 수 있습니다.",
	"el": "Όλα έτοιμα! Τα κανόνισα όλα — οι λεπτομέρειες έρχονται σύντομα.",
	"th": "เรียบร้อยแล้ว! จัดการให้ครบถ้วน รายละเอียดจะตามมาเร็ว ๆ นี้",
	"hi": "सब हो गया! मैंने सब संभाल लिया है — विवरण जल्द ही मिलेंगे।",
}

func pickMessage(table map[string]string, lang string) string {
	if msg, ok := table[lang]; ok {
		return msg
	}
	return table[defaultLanguage]
}
